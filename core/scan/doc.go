// Package scan enumerates directory trees in the background for filesystem
// shaped providers.
//
// A Scanner walks one root breadth-first using an explicit queue of pending
// directories. It classifies entries as regular files, directories or
// symlinks, honours the include-hidden and follow-symlinks flags and reports
// progress roughly every 10% of the traversal. Cancellation is polled once per
// dequeued directory; a cancelled scanner reports ErrCancelled and keeps the
// duplicate-free prefix it collected so far.
//
// A Manager caps how many scanners run at once (2 by default). Extra requests
// wait in a queue and are promoted one at a time as running scanners finish.
// Requesting a root whose scanner is still live returns that scanner; a
// finished or cancelled one is replaced by a fresh walk.
//
//	mgr := scan.NewManager(2, logger)
//	s := mgr.Scan("/data/photos", scan.Options{})
//	err := s.Wait(ctx)
//	if err != nil {
//	    s.Cancel()
//	}
//	mgr.Release(s.Root())
//	if err == nil {
//	    uris := s.URIs()
//	}
package scan
