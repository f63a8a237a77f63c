// Command loomgen generates descriptor wiring for the di runtime from a JSON
// manifest.
//
// Hand-writing di.Define calls is fine for a handful of services. Once a
// wiring set grows, the declarations drift: names collide, an edge points at
// a service nobody defines anymore, or an eager cycle sneaks in and only
// shows up as a deadlock error at runtime. loomgen moves those checks to
// generate time:
//
//   - You write one wiring.json manifest per wiring package.
//   - You add a //go:generate directive next to it.
//   - loomgen validates the graph (unique names, known edge targets, no
//     eager cycles) and emits descriptor variables plus a Validate() helper.
//
// The generated file is plain code. There is no reflection and nothing to
// initialize at runtime beyond package init.
//
// Manifest format (wiring.json)
//
// Minimal example:
//
//	{
//	  "package": "wiring",
//	  "imports": [
//	    { "path": "github.com/acme/shop/storage" },
//	    { "alias": "pay", "path": "github.com/acme/shop/payment" }
//	  ],
//	  "services": [
//	    { "name": "db", "var": "DB", "type": "*storage.DB", "constructor": "storage.NewDB" },
//	    {
//	      "name": "basket",
//	      "type": "*pay.BasketService",
//	      "constructor": "pay.NewBasket",
//	      "deps": {
//	        "db":      { "service": "db" },
//	        "payment": { "service": "payment", "lazy": true }
//	      }
//	    },
//	    {
//	      "name": "payment",
//	      "type": "*pay.PaymentService",
//	      "constructor": "pay.NewPayment",
//	      "deps": { "basket": { "service": "basket" } }
//	    }
//	  ]
//	}
//
// Each constructor must be callable as func(*di.Context) T for the declared
// type; a mismatch is a compile error in the generated file, which is the
// point. The import path of the di runtime is inferred from the go.mod of the
// module containing loomgen and can be overridden with a top-level "diImport"
// field.
//
// Typical go:generate usage
//
// Put this in the wiring package:
//
//	//go:generate go run github.com/sghaida/loom/cmd/loomgen -manifest ./wiring.json -out ./wiring.gen.go
//
// Then:
//
//	go generate ./...
//
// Generated API (summary)
//
// For the manifest above, wiring.gen.go contains:
//
//   - var DB, Basket, Payment *di.Descriptor  // assigned in init
//   - Services() []*di.Descriptor             // manifest order
//   - Validate() error                        // di.Validate over all services
//
// Descriptors are assigned in init and dependency declarations are deferred
// with di.WithDepsFunc, so manifest order never matters and mutually lazy
// services are legal.
//
// Handling cycles
//
// loomgen rejects manifests whose eager edges form a cycle, naming the path
// ("a -> b -> a"). Break the cycle by marking one edge "lazy": the dependent
// constructor then receives an accessor and must defer the first call until
// after construction, exactly as with a hand-written di.Lazy edge.
//
// One manifest per package
//
// The generated Services and Validate declarations are package level, so a
// wiring package owns exactly one manifest. Split wiring sets into separate
// packages when they need to evolve independently.
package main
