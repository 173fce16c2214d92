package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Azuznn/fanclub-site12/internal/models"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FanclubDB represents the MongoDB document structure for fanclubs
type FanclubDB struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Purpose     string    `bson:"purpose"`
	MonthlyFee  int       `bson:"monthlyFee"`
	CoverImage  string    `bson:"coverImage"`
	OwnerID     string    `bson:"ownerId"`
	MemberCount int       `bson:"memberCount"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// MembershipDB represents the MongoDB document structure for memberships
type MembershipDB struct {
	ID              string     `bson:"_id"`
	FanclubID       string     `bson:"fanclubId"`
	UserID          string     `bson:"userId"`
	IsOwner         bool       `bson:"isOwner"`
	JoinedAt        time.Time  `bson:"joinedAt"`
	NextPaymentDate *time.Time `bson:"nextPaymentDate,omitempty"`
}

func fanclubFromDB(doc *FanclubDB) (*models.Fanclub, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid fanclub ID in database: %v", err)
	}
	ownerID, err := uuid.Parse(doc.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner ID in database: %v", err)
	}
	return &models.Fanclub{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Purpose:     doc.Purpose,
		MonthlyFee:  doc.MonthlyFee,
		CoverImage:  doc.CoverImage,
		OwnerID:     ownerID,
		MemberCount: doc.MemberCount,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func membershipFromDB(doc *MembershipDB) (*models.Membership, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid membership ID in database: %v", err)
	}
	fanclubID, err := uuid.Parse(doc.FanclubID)
	if err != nil {
		return nil, fmt.Errorf("invalid fanclub ID in database: %v", err)
	}
	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %v", err)
	}
	return &models.Membership{
		ID:              id,
		FanclubID:       fanclubID,
		UserID:          userID,
		IsOwner:         doc.IsOwner,
		JoinedAt:        doc.JoinedAt,
		NextPaymentDate: doc.NextPaymentDate,
	}, nil
}

// CreateFanclubWithOwner inserts the fanclub document and its owner
// membership inside one session transaction.
func (m *MongoDB) CreateFanclubWithOwner(ctx context.Context, club *models.Fanclub) (*models.Membership, error) {
	if club.CreatedAt.IsZero() {
		club.CreatedAt = time.Now()
	}
	club.MemberCount = 1

	owner := &models.Membership{
		ID:        uuid.New(),
		FanclubID: club.ID,
		UserID:    club.OwnerID,
		IsOwner:   true,
		JoinedAt:  club.CreatedAt,
	}

	_, err := m.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		clubDoc := FanclubDB{
			ID:          club.ID.String(),
			Name:        club.Name,
			Description: club.Description,
			Purpose:     club.Purpose,
			MonthlyFee:  club.MonthlyFee,
			CoverImage:  club.CoverImage,
			OwnerID:     club.OwnerID.String(),
			MemberCount: club.MemberCount,
			CreatedAt:   club.CreatedAt,
		}
		if _, err := m.Fanclubs.InsertOne(sc, clubDoc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, utils.NewAppError(utils.ErrDuplicate, fmt.Sprintf("fanclub %q already exists", club.Name), err)
			}
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to create fanclub", err)
		}

		ownerDoc := MembershipDB{
			ID:        owner.ID.String(),
			FanclubID: owner.FanclubID.String(),
			UserID:    owner.UserID.String(),
			IsOwner:   true,
			JoinedAt:  owner.JoinedAt,
		}
		if _, err := m.Memberships.InsertOne(sc, ownerDoc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to create owner membership", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

// GetFanclubByID retrieves a fanclub by its ID
func (m *MongoDB) GetFanclubByID(ctx context.Context, id uuid.UUID) (*models.Fanclub, error) {
	var doc FanclubDB
	err := m.Fanclubs.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewAppError(utils.ErrNotFound, "fanclub not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get fanclub", err)
	}
	return fanclubFromDB(&doc)
}

// SearchFanclubs retrieves fanclubs matching the query in name, description
// or purpose, newest first.
func (m *MongoDB) SearchFanclubs(ctx context.Context, query string) ([]*models.Fanclub, error) {
	filter := bson.M{}
	if query != "" {
		pattern := bson.M{"$regex": query, "$options": "i"}
		filter = bson.M{"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"purpose": pattern},
		}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Fanclubs.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to search fanclubs", err)
	}
	defer cursor.Close(ctx)

	clubs := make([]*models.Fanclub, 0)
	for cursor.Next(ctx) {
		var doc FanclubDB
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode fanclub", err)
		}
		club, err := fanclubFromDB(&doc)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, club)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "cursor error", err)
	}
	return clubs, nil
}

// GetFanclubMembers retrieves all membership documents of a fanclub.
func (m *MongoDB) GetFanclubMembers(ctx context.Context, fanclubID uuid.UUID) ([]*models.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}})
	cursor, err := m.Memberships.Find(ctx, bson.M{"fanclubId": fanclubID.String()}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get fanclub members", err)
	}
	defer cursor.Close(ctx)

	members := make([]*models.Membership, 0)
	for cursor.Next(ctx) {
		var doc MembershipDB
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode membership", err)
		}
		member, err := membershipFromDB(&doc)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "cursor error", err)
	}
	return members, nil
}

// CheckFanclubConsistency compares the stored memberCount with the actual
// number of membership documents.
func (m *MongoDB) CheckFanclubConsistency(ctx context.Context, fanclubID uuid.UUID) error {
	var doc FanclubDB
	err := m.Fanclubs.FindOne(ctx, bson.M{"_id": fanclubID.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return utils.NewAppError(utils.ErrNotFound, "fanclub not found", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to get fanclub", err)
	}

	actual, err := m.Memberships.CountDocuments(ctx, bson.M{"fanclubId": fanclubID.String()})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to count memberships", err)
	}

	if doc.MemberCount != int(actual) {
		return utils.NewConsistencyFaultError(fanclubID.String(), doc.MemberCount, int(actual))
	}
	return nil
}

// JoinFanclub inserts a membership document and increments memberCount in
// one session transaction. The unique (fanclubId, userId) index closes the
// duplicate-join race.
func (m *MongoDB) JoinFanclub(ctx context.Context, fanclubID, userID uuid.UUID, nextPayment time.Time) (*models.Membership, error) {
	membership := &models.Membership{
		ID:              uuid.New(),
		FanclubID:       fanclubID,
		UserID:          userID,
		IsOwner:         false,
		JoinedAt:        time.Now(),
		NextPaymentDate: &nextPayment,
	}

	_, err := m.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		doc := MembershipDB{
			ID:              membership.ID.String(),
			FanclubID:       membership.FanclubID.String(),
			UserID:          membership.UserID.String(),
			IsOwner:         false,
			JoinedAt:        membership.JoinedAt,
			NextPaymentDate: membership.NextPaymentDate,
		}
		if _, err := m.Memberships.InsertOne(sc, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, utils.NewAppError(utils.ErrAlreadyMember, "user is already a member of this fanclub", err)
			}
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to insert membership", err)
		}

		result, err := m.Fanclubs.UpdateOne(sc,
			bson.M{"_id": fanclubID.String()},
			bson.M{"$inc": bson.M{"memberCount": 1}},
		)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to update member count", err)
		}
		if result.MatchedCount == 0 {
			// Aborting the transaction rolls the membership insert back.
			return nil, utils.NewAppError(utils.ErrNotFound, "fanclub not found", nil)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// LeaveFanclub deletes a non-owner membership document and decrements
// memberCount in one session transaction.
func (m *MongoDB) LeaveFanclub(ctx context.Context, fanclubID, userID uuid.UUID) error {
	_, err := m.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := m.Memberships.DeleteOne(sc, bson.M{
			"fanclubId": fanclubID.String(),
			"userId":    userID.String(),
			"isOwner":   false,
		})
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to delete membership", err)
		}
		if result.DeletedCount == 0 {
			return nil, utils.NewAppError(utils.ErrForbidden, "membership does not exist or belongs to the owner", nil)
		}

		// The memberCount filter keeps the counter from going negative.
		_, err = m.Fanclubs.UpdateOne(sc,
			bson.M{"_id": fanclubID.String(), "memberCount": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"memberCount": -1}},
		)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to update member count", err)
		}
		return nil, nil
	})
	return err
}

// GetMembership retrieves the membership document for a (fanclub, user) pair.
func (m *MongoDB) GetMembership(ctx context.Context, fanclubID, userID uuid.UUID) (*models.Membership, error) {
	var doc MembershipDB
	err := m.Memberships.FindOne(ctx, bson.M{
		"fanclubId": fanclubID.String(),
		"userId":    userID.String(),
	}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewAppError(utils.ErrNotFound, "membership not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get membership", err)
	}
	return membershipFromDB(&doc)
}

// IsMember reports whether the user holds any membership in the fanclub.
func (m *MongoDB) IsMember(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error) {
	count, err := m.Memberships.CountDocuments(ctx, bson.M{
		"fanclubId": fanclubID.String(),
		"userId":    userID.String(),
	})
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to check membership", err)
	}
	return count > 0, nil
}

// IsOwner reports whether the user holds the owner membership of the fanclub.
func (m *MongoDB) IsOwner(ctx context.Context, userID, fanclubID uuid.UUID) (bool, error) {
	count, err := m.Memberships.CountDocuments(ctx, bson.M{
		"fanclubId": fanclubID.String(),
		"userId":    userID.String(),
		"isOwner":   true,
	})
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to check ownership", err)
	}
	return count > 0, nil
}

// GetUserFanclubs retrieves the IDs of all fanclubs the user belongs to.
func (m *MongoDB) GetUserFanclubs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	cursor, err := m.Memberships.Find(ctx, bson.M{"userId": userID.String()})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user fanclubs", err)
	}
	defer cursor.Close(ctx)

	var fanclubIDs []uuid.UUID
	for cursor.Next(ctx) {
		var doc MembershipDB
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode membership", err)
		}
		fanclubID, err := uuid.Parse(doc.FanclubID)
		if err != nil {
			return nil, fmt.Errorf("invalid fanclub ID in database: %v", err)
		}
		fanclubIDs = append(fanclubIDs, fanclubID)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "cursor error", err)
	}
	return fanclubIDs, nil
}
