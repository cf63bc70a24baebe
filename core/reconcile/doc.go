// Package reconcile keeps two dataproviders consistent with each other.
//
// A pass over a Pair runs in fixed stages:
//
// 1. Refresh: both providers are refreshed concurrently. A failed refresh
// aborts the pass.
//
// 2. Snapshot: each side's added, modified and deleted UIDs are computed,
// from the provider's native change log when it is ChangeAware, otherwise by
// diffing GetAll against the mappings recorded by the previous pass.
//
// 3. Plan and apply: for the forward direction (source to sink) and then,
// for two-way pairs, the reverse direction, an ordered list of actions is
// planned and applied one item at a time. Every successful transfer upserts
// its mapping immediately, so an interrupted pass loses at most the items in
// flight.
//
// 4. Finish: both providers are told the outcome, whatever it was.
//
// # Policies
//
// Conflicts (both sides changed, or the ordering is unknown) and deletions are
// resolved by the pair's Policy: skip leaves everything untouched, ask leaves
// everything untouched and reports the item, replace forces the change with
// the source side winning ties. Every conflict is counted regardless of the
// policy.
//
// # Errors
//
// Per-item failures, including missing conversions, are counted in
// Result.Errored and the pass continues. Fatal provider errors, mapping store
// failures and cancellation abort the pass.
//
// # Usage
//
//	r := reconcile.New(reconcile.Env{
//	    Mappings:  store,
//	    Converter: graph,
//	    Logger:    logger,
//	})
//	result, err := r.Run(ctx, reconcile.Pair{
//	    Name:   "photos",
//	    Source: folderA,
//	    Sink:   folderB,
//	    Options: reconcile.Options{
//	        TwoWay:   true,
//	        Conflict: reconcile.PolicyAsk,
//	        Deleted:  reconcile.PolicyReplace,
//	    },
//	})
package reconcile
