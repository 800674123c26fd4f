// Package loader links the implementation image that matches the running
// host and constructs the extensions it declares.
//
// # Resolution
//
// A Resolver runs once, at the point where the host wants its extensions:
//
//	r := loader.NewResolver[SubModule](loader.Options{
//		Filter:      "ModuleLoader.*.xmod",
//		Contract:    "ModuleLoader.SubModule",
//		HostVersion: readHostVersion,
//		Linker:      loader.NewPluginLinker(cacheDir, logger),
//		Logger:      logger,
//	})
//	modules, report, err := r.Resolve(ctx)
//
// It locates its own image, lists matching files next to it, reads each
// candidate's version metadata without linking it, selects one and links
// only the winner. Each way of stopping early is a distinct terminal State
// in the returned Report. Only a failing constructor produces an error.
//
// # Linking
//
// PluginLinker opens the image's code payload as a Go plugin, which runs
// the plugin's package initialization. StaticLinker serves implementations
// compiled into the process, which register their constructors in a
// Registry from init().
//
// # Registration and construction
//
// Discover and Construct are separate phases: Discover turns every concrete
// type of the image that derives from the contract into a Factory and
// reports types that cannot be built; Construct invokes the factories and
// treats any error or panic as fatal.
package loader
