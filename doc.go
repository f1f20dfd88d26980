/*
Package histosketch implements the Ben-Haim/Tom-Tov streaming parallel
decision-tree histogram: a bounded-memory approximate histogram sketch
over a stream of single-precision samples.

A Sketch retains at most Capacity() bin centroids. Once full, further
Offer calls either fold a new sample into its nearest existing bin or
merge the globally closest pair of bins to make room, always picking
the candidate that keeps the reconstructed distribution closest to the
true one. Two sketches built over disjoint parts of a stream can be
combined with Fold (an optimal, heap-driven merge) or FoldFast (a
single-pass, cutoff-driven merge), and the result supports approximate
rank (Sum) and quantile queries.

Bins that have never been merged are flagged "exact": they represent a
single observed value with its exact multiplicity, and queries treat
them as point masses rather than interpolation triangles. Every other
bin is "approximate": a blurred centroid standing in for several
original samples.

A Sketch is not safe for concurrent mutation; callers synchronize
externally or use one Sketch per goroutine.
*/
package histosketch
