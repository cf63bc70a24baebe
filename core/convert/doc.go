// Package convert implements the type converter graph.
//
// Each dataprovider kind declares a table of conversion edges keyed by
// "fromType,toType". The graph is the union of those tables, built once at
// startup. Later registrations for the same pair replace earlier ones.
//
// Conversion is single-hop: Convert looks up exactly one edge and invokes it.
// Type names may carry arguments as a query string, e.g. "object?max_size=1024";
// the arguments of the target type are decoded and passed to the function.
//
//	g := convert.NewGraph(logger)
//	g.RegisterTable(folder.Conversions())
//	out, err := g.Convert("file", "object?max_size=1048576", data)
//	if errors.Is(err, convert.ErrNoConversion) {
//	    // terminal for this item only
//	}
package convert
