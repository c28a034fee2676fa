package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"laporan/internal/model"
	"laporan/internal/repository"
)

// reportDoc is the BSON shape of a report. The report ID is used as _id.
type reportDoc struct {
	ID           string     `bson:"_id"`
	PhotoURL     string     `bson:"photo_url"`
	OriginalName string     `bson:"original_name"`
	StoredName   string     `bson:"stored_name"`
	Substation   string     `bson:"substation"`
	Fault        string     `bson:"fault"`
	Repair       string     `bson:"repair"`
	FaultAt      *time.Time `bson:"fault_at,omitempty"`
	ResolvedAt   *time.Time `bson:"resolved_at,omitempty"`
	Status       string     `bson:"status"`
	Author       string     `bson:"author"`
	UploadedAt   time.Time  `bson:"uploaded_at"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func toDoc(r *model.Report) reportDoc {
	return reportDoc{
		ID:           r.ID,
		PhotoURL:     r.PhotoURL,
		OriginalName: r.OriginalName,
		StoredName:   r.StoredName,
		Substation:   r.Substation,
		Fault:        r.Fault,
		Repair:       r.Repair,
		FaultAt:      timePtr(r.FaultAt),
		ResolvedAt:   timePtr(r.ResolvedAt),
		Status:       string(r.Status),
		Author:       r.Author,
		UploadedAt:   r.UploadedAt.UTC(),
	}
}

func (d reportDoc) toModel() model.Report {
	r := model.Report{
		ID:           d.ID,
		PhotoURL:     d.PhotoURL,
		OriginalName: d.OriginalName,
		StoredName:   d.StoredName,
		Substation:   d.Substation,
		Fault:        d.Fault,
		Repair:       d.Repair,
		Status:       model.Status(d.Status),
		Author:       d.Author,
		UploadedAt:   d.UploadedAt,
	}
	if d.FaultAt != nil {
		r.FaultAt = *d.FaultAt
	}
	if d.ResolvedAt != nil {
		r.ResolvedAt = *d.ResolvedAt
	}
	return r
}

// updateDoc translates a partial update into $set / $unset documents.
// Zero timestamps are unset so they read back as absent.
func updateDoc(u model.ReportUpdate) bson.M {
	set := bson.M{}
	unset := bson.M{}
	if u.Substation != nil {
		set["substation"] = *u.Substation
	}
	if u.Fault != nil {
		set["fault"] = *u.Fault
	}
	if u.Repair != nil {
		set["repair"] = *u.Repair
	}
	if u.FaultAt != nil {
		if u.FaultAt.IsZero() {
			unset["fault_at"] = ""
		} else {
			set["fault_at"] = u.FaultAt.UTC()
		}
	}
	if u.ResolvedAt != nil {
		if u.ResolvedAt.IsZero() {
			unset["resolved_at"] = ""
		} else {
			set["resolved_at"] = u.ResolvedAt.UTC()
		}
	}
	if u.Status != nil {
		set["status"] = string(*u.Status)
	}
	if u.Author != nil {
		set["author"] = *u.Author
	}

	doc := bson.M{}
	if len(set) > 0 {
		doc["$set"] = set
	}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}

// ReportMongo is a MongoDB implementation of repository.ReportRepository.
type ReportMongo struct {
	coll *mongo.Collection
}

// NewReportMongo creates a repository over the given collection.
func NewReportMongo(coll *mongo.Collection) *ReportMongo {
	return &ReportMongo{coll: coll}
}

var _ repository.ReportRepository = (*ReportMongo)(nil)

// EnsureIndexes creates the indexes backing list order and status lookups. It is idempotent.
func (r *ReportMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uploaded_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (r *ReportMongo) Create(ctx context.Context, rep *model.Report) (*model.Report, error) {
	doc := toDoc(rep)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	out := doc.toModel()
	return &out, nil
}

func (r *ReportMongo) List(ctx context.Context) ([]model.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]model.Report, 0)
	for cur.Next(ctx) {
		var d reportDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		items = append(items, d.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ReportMongo) FindByID(ctx context.Context, id string) (*model.Report, error) {
	var d reportDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	out := d.toModel()
	return &out, nil
}

func (r *ReportMongo) Update(ctx context.Context, id string, u model.ReportUpdate) (*model.Report, error) {
	if u.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d reportDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, updateDoc(u), opts).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	out := d.toModel()
	return &out, nil
}

func (r *ReportMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
