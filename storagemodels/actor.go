/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "context"

type actorKey struct{}

// WithActor returns a context carrying the identity performing writes.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor set by WithActor.
func ActorFrom(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok && actor != ""
}

// ActorStamper is implemented by entities that record who wrote them.
// Stores call StampCreatedBy on insert and StampUpdatedBy on insert and
// update, only when the context carries an actor.
type ActorStamper interface {
	StampCreatedBy(actor string)
	StampUpdatedBy(actor string)
}
