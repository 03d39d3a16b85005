// Package extension mounts Storehook into a host application.
//
// An Extension owns the lifecycle of one Storehook instance: Start builds
// it from Config and runs store migrations, Handler and RegisterRoutes
// expose the admin API on a stdlib mux or a Forge router, and Stop drains
// in-flight triggers before closing the store.
//
// Usage:
//
//	ext := extension.New(
//	    extension.WithStore(pgStore),
//	    extension.WithAuthenticator(auth.StaticTokens{token: admin}),
//	)
//	if err := ext.Start(ctx); err != nil { ... }
//	defer ext.Stop(ctx)
//	mux.Handle(ext.BasePath()+"/", ext.Handler())
package extension
