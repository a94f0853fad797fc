package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed agreement repository. Agreements keep
// a string ObjectID hex in "_id" and a version counter backing ReplaceSigned.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// secondary lookups used by the listing endpoints
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "creatorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "inviteeEmails", Value: 1}}},
	}
	col.Indexes().CreateMany(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, a *agreement.Agreement) (string, error) {
	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	a.CreatedAt = time.Now().UTC()
	a.Version = 1
	if _, err := m.col.InsertOne(ctx, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (*agreement.Agreement, error) {
	var a agreement.Agreement
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (m *MongoRepo) FindByCreator(ctx context.Context, creatorID string) ([]*agreement.Agreement, error) {
	return m.find(ctx, bson.M{"creatorId": creatorID})
}

func (m *MongoRepo) FindPendingForInvitee(ctx context.Context, email string) ([]*agreement.Agreement, error) {
	return m.find(ctx, bson.M{
		"inviteeEmails":  email,
		"signedBy.email": bson.M{"$ne": email},
	})
}

func (m *MongoRepo) FindFullySignedInvolving(ctx context.Context, email string) ([]*agreement.Agreement, error) {
	return m.find(ctx, bson.M{
		"status":        string(agreement.StatusFullySigned),
		"inviteeEmails": email,
		"signedBy":      bson.M{"$elemMatch": bson.M{"email": email}},
		"creatorEmail":  bson.M{"$ne": email},
	})
}

func (m *MongoRepo) SearchByTitle(ctx context.Context, title string) ([]*agreement.Agreement, error) {
	return m.find(ctx, bson.M{
		"title": bson.M{"$regex": regexp.QuoteMeta(title), "$options": "i"},
	})
}

func (m *MongoRepo) ReplaceSigned(ctx context.Context, id string, version int64, signedBy []agreement.Signature, status agreement.Status) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "version": version},
		bson.M{
			"$set": bson.M{"signedBy": signedBy, "status": string(status)},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// distinguish a lost race from a missing agreement
		if n, err := m.col.CountDocuments(ctx, bson.M{"_id": id}); err == nil && n == 0 {
			return ErrNotFound
		}
		return ErrStale
	}
	return nil
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M) ([]*agreement.Agreement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*agreement.Agreement{}
	for cur.Next(ctx) {
		var a agreement.Agreement
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, cur.Err()
}
