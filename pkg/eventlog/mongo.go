package eventlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prfstim/prfstim/pkg/errors"
)

const (
	DefaultMongoDatabase   = "prfstim"
	DefaultMongoCollection = "events"
	runsCollection         = "runs"
)

// Mongo stores one document per event.
type Mongo struct {
	client *mongo.Client
	events *mongo.Collection
	runs   *mongo.Collection
}

// eventDoc is the stored shape of [Event]. The run id is kept as its
// string form so documents stay readable in the shell.
type eventDoc struct {
	Run     string            `bson:"run"`
	Block   int               `bson:"block"`
	Trial   int               `bson:"trial_nr"`
	Phase   int               `bson:"phase"`
	Onset   float64           `bson:"onset"`
	Type    string            `bson:"event_type"`
	Key     string            `bson:"response,omitempty"`
	Correct bool              `bson:"correct"`
	RT      float64           `bson:"rt"`
	Params  map[string]string `bson:"params,omitempty"`
}

type runDoc struct {
	ID           string    `bson:"_id"`
	Subject      string    `bson:"subject,omitempty"`
	Started      time.Time `bson:"started_at"`
	SettingsHash string    `bson:"settings_hash,omitempty"`
}

// NewMongo connects to uri. Empty database and collection names select
// the defaults.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "connect to %s", uri)
	}
	db := client.Database(database)
	return &Mongo{client: client, events: db.Collection(collection), runs: db.Collection(runsCollection)}, nil
}

// Ping checks that the server is reachable.
func (m *Mongo) Ping(ctx context.Context) error { return m.client.Ping(ctx, nil) }

func (m *Mongo) StartRun(ctx context.Context, info RunInfo) error {
	_, err := m.runs.InsertOne(ctx, runDoc{
		ID:           info.ID.String(),
		Subject:      info.Subject,
		Started:      info.Started.UTC(),
		SettingsHash: info.SettingsHash,
	})
	return err
}

func (m *Mongo) Append(ctx context.Context, e Event) error {
	_, err := m.events.InsertOne(ctx, toDoc(e))
	return err
}

// Events returns a run's events in onset order.
func (m *Mongo) Events(ctx context.Context, run uuid.UUID) ([]Event, error) {
	filter := bson.M{}
	if run != uuid.Nil {
		filter["run"] = run.String()
	}
	cur, err := m.events.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "onset", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(docs))
	for _, d := range docs {
		e, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func toDoc(e Event) eventDoc {
	return eventDoc{
		Run:     e.Run.String(),
		Block:   e.Block,
		Trial:   e.Trial,
		Phase:   e.Phase,
		Onset:   e.Onset,
		Type:    string(e.Type),
		Key:     e.Key,
		Correct: e.Correct,
		RT:      e.RT,
		Params:  e.Params,
	}
}

func fromDoc(d eventDoc) (Event, error) {
	id, err := uuid.Parse(d.Run)
	if err != nil {
		return Event{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "event run id %q", d.Run)
	}
	return Event{
		Run:     id,
		Block:   d.Block,
		Trial:   d.Trial,
		Phase:   d.Phase,
		Onset:   d.Onset,
		Type:    Type(d.Type),
		Key:     d.Key,
		Correct: d.Correct,
		RT:      d.RT,
		Params:  d.Params,
	}, nil
}

var (
	_ Log         = (*Mongo)(nil)
	_ Reader      = (*Mongo)(nil)
	_ RunRecorder = (*Mongo)(nil)
)
