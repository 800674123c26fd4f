// Package provision generates per-module copies of the template image
// during a build.
//
// The build toolchain hands over its properties; the pipeline renames the
// template for the module and writes it, with its debug companion, into the
// module's output directory:
//
//	p := provision.NewPipeline(provision.Options{
//		Templates: os.DirFS("templates"),
//		Logger:    logger,
//	})
//	res := p.Run(ctx, provision.InputsFromProperties(props))
//	for _, d := range res.Diagnostics {
//		fmt.Println(d)
//	}
//
// Progress is reported as diagnostics:
//
//	ML0001  skipped, missing required inputs (no files touched)
//	ML0002  generation started
//	ML0003  generation succeeded
//	ML0004  generation failed: <kind>: <message>
//
// Run never panics and never returns an error to the toolchain; a failed
// module shows up as an ML0004 diagnostic.
package provision
