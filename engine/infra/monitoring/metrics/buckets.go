package metrics

// HTTPDurationBuckets defines latency buckets for HTTP request duration metrics.
var HTTPDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// HTTPSizeBucketBoundaries are response size boundaries in bytes. Generated
// zip archives land in the upper buckets.
var HTTPSizeBucketBoundaries = []float64{100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000}

// PackageFileBuckets bound the number of artifacts per generated package.
var PackageFileBuckets = []float64{1, 2, 3, 4, 5, 6, 7, 8}
