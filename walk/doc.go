// Package walk is the public API for locating git repositories.
//
// A walk is a single-threaded depth-first search that reports every
// directory containing a .git directory and never descends into a reported
// repository:
//
//	opts := walk.DefaultOptions("/home/me/src")
//	repos, err := walk.Find(context.Background(), opts)
//
// Events can be consumed as they are discovered:
//
//	stats, err := walk.Walk(ctx, opts, func(ctx context.Context, ev walk.Event) error {
//		if ev.Kind == walk.EventMatch {
//			fmt.Println(ev.Path)
//		}
//		return nil
//	})
//
// Symbolic links are skipped by default. With Symlinks set to SymlinkFollow
// every real directory is visited at most once, so link cycles terminate.
//
// Paranoid mode confirms each candidate by running `git rev-parse HEAD`; a
// custom Validator can be supplied instead:
//
//	opts.Paranoid = true
//	opts.Validator = walk.ValidatorFunc(func(ctx context.Context, dir string) error {
//		return nil
//	})
//
// Watch keeps running after the initial scan and reports repositories that
// are created later:
//
//	_, err := walk.Watch(ctx, opts, walk.WatchOptions{Timeout: time.Hour}, handler)
package walk
