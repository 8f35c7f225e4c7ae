package knot

import (
	"context"

	"github.com/AnatoleLucet/knot/internal"
)

// Subscription is the handle returned by every subscriber constructor.
// Dispose unbinds the subscriber's sources, making unused derived state
// discardable; in-flight async work is dropped with its epoch.
type Subscription interface {
	Dispose()
}

// Subscribe runs f on the next flush and after every change to the sources
// it read.
// Subscribers are root sinks: they live until disposed.
func Subscribe(f func(*SignalContext)) Subscription {
	return SubscribeWith(TaskUser, f)
}

// SubscribeWith is Subscribe under an explicit task kind.
func SubscribeWith(kind TaskKind, f func(*SignalContext)) Subscription {
	return internal.NewSubscriber(internal.GetRuntime(), kind, func(sc *internal.SignalContext) bool {
		f(sc)
		return true
	})
}

// SubscribeWhile re-runs f until it returns false, then disposes itself.
func SubscribeWhile(f func(*SignalContext) bool) Subscription {
	return internal.NewSubscriber(internal.GetRuntime(), TaskUser, f)
}

// Effect is Subscribe on the render kind, which drains before user
// subscribers within a flush.
func Effect(f func(*SignalContext)) Subscription {
	return SubscribeWith(TaskRender, f)
}

type asyncSubscription struct {
	sub  *internal.Subscriber
	node *internal.AsyncNode
}

func (s *asyncSubscription) Dispose() { s.sub.Dispose() }

// SubscribeAsync runs an asynchronous closure per wave: f starts on its
// own goroutine, reads sources through asc.With, and is canceled and
// restarted when any of them change.
func SubscribeAsync(f func(asc *AsyncSignalContext)) Subscription {
	return subscribeAsync(TaskUser, f)
}

// EffectAsync is SubscribeAsync on the render kind.
func EffectAsync(f func(asc *AsyncSignalContext)) Subscription {
	return subscribeAsync(TaskRender, f)
}

func subscribeAsync(kind TaskKind, f func(asc *AsyncSignalContext)) Subscription {
	rt := internal.GetRuntime()
	node := internal.NewAsyncNode(rt, struct{}{}, internal.AsyncOps{
		Name: "subscribe-async",
		Start: func(ctx context.Context, asc *AsyncSignalContext) {
			guard(asc, func() {
				f(asc)
				if ctx.Err() == nil {
					asc.CommitValue(struct{}{}, true)
				}
			})
		},
		Fold: func(prev, v any) any { return prev },
	})
	sub := internal.NewSubscriber(rt, kind, func(sc *internal.SignalContext) bool {
		node.Borrow(sc)
		return true
	})
	return &asyncSubscription{sub: sub, node: node}
}
