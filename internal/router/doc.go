// Package router resolves a request URI to exactly one productive route.
//
// A Route binds a declarative RequestSpec (path segments, parameters,
// CSRF flag and extra cache key inputs) to a handler token. Routes are
// registered in a Router once at start and the table is frozen before the
// first dispatch.
//
// Dispatch splits the URI into segments and keeps, in registration order,
// every route whose segments structurally match. Each candidate in turn has
// its values filtered and checked by the security collaborator, may replay a
// cached response, and otherwise runs its handler. The first Productive
// outcome wins. When no candidate is productive the result is NotFound
// together with the reason every candidate was rejected.
//
//	r := router.New(registry, guard, router.WithCaches(providers))
//	_ = r.Register(router.NewRoute("blog", "blog.show",
//	    router.NewRequestSpec(router.Fixed("blog"), router.Numeric("postId"))))
//	r.Freeze()
//
//	res, err := r.Dispatch(ctx, "/blog/17", router.Ambient{})
package router
