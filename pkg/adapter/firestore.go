package adapter

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SessionStore is the session persistence collaborator. Put uses merge
// semantics: only the fields in the write overwrite stored data, so the
// workflow can upsert partial state at every transition.
type SessionStore interface {
	Put(ctx context.Context, id model.SessionID, fields map[string]any) error
	Get(ctx context.Context, id model.SessionID) (*model.Session, error)
	// AppendQuery atomically appends one record to the session's query
	// log. The append happens at the persistence layer so that
	// concurrent queries against the same session cannot lose updates.
	AppendQuery(ctx context.Context, id model.SessionID, q model.QueryRecord) error
	// ListRecent returns up to limit sessions, most recently updated
	// first.
	ListRecent(ctx context.Context, limit int) ([]*model.Session, error)
}

const sessionCollection = "sessions"

// FirestoreClient implements SessionStore using Firestore
type FirestoreClient struct {
	client *firestore.Client
}

func NewFirestore(ctx context.Context, projectID, databaseID string) (*FirestoreClient, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &FirestoreClient{client: client}, nil
}

func (f *FirestoreClient) Put(ctx context.Context, id model.SessionID, fields map[string]any) error {
	fields["updated_at"] = time.Now()

	doc := f.client.Collection(sessionCollection).Doc(string(id))
	if _, err := doc.Set(ctx, fields, firestore.MergeAll); err != nil {
		return goerr.Wrap(err, "failed to save session", goerr.V("session_id", id))
	}
	return nil
}

func (f *FirestoreClient) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	doc, err := f.client.Collection(sessionCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrSessionNotFound, "no such session", goerr.V("session_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V("session_id", id))
	}

	var session model.Session
	if err := doc.DataTo(&session); err != nil {
		return nil, goerr.Wrap(err, "failed to decode session", goerr.V("session_id", id))
	}
	session.ID = id

	return &session, nil
}

func (f *FirestoreClient) AppendQuery(ctx context.Context, id model.SessionID, q model.QueryRecord) error {
	doc := f.client.Collection(sessionCollection).Doc(string(id))
	_, err := doc.Update(ctx, []firestore.Update{
		{Path: "queries", Value: firestore.ArrayUnion(q)},
		{Path: "updated_at", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrSessionNotFound, "no such session", goerr.V("session_id", id))
		}
		return goerr.Wrap(err, "failed to append query", goerr.V("session_id", id))
	}
	return nil
}

func (f *FirestoreClient) ListRecent(ctx context.Context, limit int) ([]*model.Session, error) {
	iter := f.client.Collection(sessionCollection).
		OrderBy("updated_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var sessions []*model.Session
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list sessions")
		}

		var session model.Session
		if err := doc.DataTo(&session); err != nil {
			return nil, goerr.Wrap(err, "failed to decode session", goerr.V("session_id", doc.Ref.ID))
		}
		session.ID = model.SessionID(doc.Ref.ID)
		sessions = append(sessions, &session)
	}

	return sessions, nil
}

// Close releases the underlying Firestore client
func (f *FirestoreClient) Close() error {
	return f.client.Close()
}
