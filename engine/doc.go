// Package engine hosts clustering jobs on a worker pool and streams their
// lifecycle as events. Jobs arrive either in-process through Host.Submit or
// over NATS on the "<prefix>.run" subject; each job's events are published
// on "<prefix>.<id>.events" and end with exactly one terminal event, either
// an error or a finished result bundle. Finished results can optionally be
// persisted in a JetStream key-value bucket and re-imported through the
// cluster data loader.
package engine
