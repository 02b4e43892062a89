package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

const bookingCollection = "booking_requests"

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingCollection)}
}

// EnsureIndexes creates the indexes backing the operator list.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.RequestID) (*domainbooking.BookingRequest, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts the request guarded by its version. A stale version either matches
// nothing or collides with the existing _id, both reported as ErrConcurrentUpdate.
func (r *BookingRepository) Save(ctx context.Context, req *domainbooking.BookingRequest) error {
	doc := newBookingDocument(req)
	filter := bson.M{"_id": doc.ID, "version": req.Version}
	doc.Version = req.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	req.Version = doc.Version
	return nil
}

func (r *BookingRepository) List(ctx context.Context, filter domainbooking.Filter) ([]*domainbooking.BookingRequest, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.BookingRequest, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID           string        `bson:"_id"`
	Range        rangeDocument `bson:"range"`
	Adults       int           `bson:"adults"`
	Children     int           `bson:"children"`
	GuestCount   int           `bson:"guest_count"`
	DogsIncluded bool          `bson:"dogs_included"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	Phone        string        `bson:"phone,omitempty"`
	Message      string        `bson:"message,omitempty"`
	QuotedTotal  moneyDocument `bson:"quoted_total"`
	Status       string        `bson:"status"`
	CreatedAt    int64         `bson:"created_at"`
	UpdatedAt    int64         `bson:"updated_at"`
	Version      int64         `bson:"version"`
}

type rangeDocument struct {
	CheckIn  string `bson:"check_in"`
	CheckOut string `bson:"check_out"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newBookingDocument(req *domainbooking.BookingRequest) bookingDocument {
	return bookingDocument{
		ID: string(req.ID),
		Range: rangeDocument{
			CheckIn:  req.Range.CheckIn.Format(time.DateOnly),
			CheckOut: req.Range.CheckOut.Format(time.DateOnly),
		},
		Adults:       req.Adults,
		Children:     req.Children,
		GuestCount:   req.GuestCount,
		DogsIncluded: req.DogsIncluded,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Message:      req.Message,
		QuotedTotal:  moneyDocument{Amount: req.QuotedTotal.Amount, Currency: req.QuotedTotal.Currency},
		Status:       string(req.Status),
		CreatedAt:    req.CreatedAt.UnixMilli(),
		UpdatedAt:    req.UpdatedAt.UnixMilli(),
		Version:      req.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.BookingRequest {
	checkIn, _ := domainrange.Parse(d.Range.CheckIn)
	checkOut, _ := domainrange.Parse(d.Range.CheckOut)
	return &domainbooking.BookingRequest{
		ID:           domainbooking.RequestID(d.ID),
		Range:        domainrange.DateRange{CheckIn: checkIn, CheckOut: checkOut},
		Adults:       d.Adults,
		Children:     d.Children,
		GuestCount:   d.GuestCount,
		DogsIncluded: d.DogsIncluded,
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		Message:      d.Message,
		QuotedTotal:  money.Money{Amount: d.QuotedTotal.Amount, Currency: d.QuotedTotal.Currency},
		Status:       domainbooking.Status(d.Status),
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
