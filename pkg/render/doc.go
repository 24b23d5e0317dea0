// Package render groups the output side of prfstim.
//
//   - [sink]: drawing targets for resolved frames (raster PNG, scatter
//     preview, JSON lines)
//   - [regiongraph]: Graphviz view of a frame's regions and crossings
//
// [sink]: github.com/prfstim/prfstim/pkg/render/sink
// [regiongraph]: github.com/prfstim/prfstim/pkg/render/regiongraph
package render
