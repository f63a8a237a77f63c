// Package di implements a minimal dependency-injection container built
// around explicit service descriptors.
//
// A Descriptor is an identity token created with Define. Its declaration
// names dependencies under local string keys, each declared either Eager
// (resolved before the constructor runs) or Lazy (bound into the Context as
// a deferred Accessor). A Container resolves descriptors recursively and
// caches one instance per descriptor: one container, one scope.
//
// Wiring stays explicit in your composition root. There is no reflection
// over struct fields, no tag scanning, and no global registry.
//
// # Quick start
//
//	var (
//		database = di.Define("database", func(*di.Context) *DB {
//			return OpenDB()
//		})
//		basket = di.Define("basket", func(ctx *di.Context) *BasketService {
//			return &BasketService{DB: di.MustGetAs[*DB](ctx, "db")}
//		}, di.WithDeps(di.Declaration{
//			"db": di.Eager(database),
//		}))
//	)
//
//	c := di.New()
//	svc, err := di.Resolve[*BasketService](c, basket)
//
// # Eager and lazy edges
//
// Use eager when the constructor needs the instance immediately. Use lazy
// when two services depend on each other, or when a dependency is expensive
// and only sometimes needed: the accessor defers resolution until invoked,
// so construction of a mutually dependent pair completes. An eager cycle
// fails with CircularDependencyError naming the revisited service and the
// construction path; so does a lazy accessor invoked inside a constructor
// when its target is still under construction.
//
// Declaration-order problems have two tools: WithDepsFunc defers the whole
// declaration, and Lazy defers a single target behind a Thunk. Both are
// evaluated at resolution time, never at Define time.
//
// # Seeding and overrides
//
// Register binds an instance directly, bypassing construction. It
// overwrites, so it doubles as the override hook for test doubles and as
// the way to share one instance across containers.
//
// # Validation
//
// Validate walks the eager graph statically and reports eager-only cycles
// and malformed declarations before anything is constructed. Wiring that
// only shows up under traffic is cheaper to catch in a test that calls
// Validate over your root descriptors.
//
// Import
//
//	"github.com/sghaida/loom/di"
package di
