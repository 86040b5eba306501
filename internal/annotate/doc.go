// Package annotate defines the annotation contract between the pipeline
// and its caller.
//
// Annotation is a single pure call per frame: image in, annotated image
// out. The pipeline owns no drawing primitive; Passthrough is the only
// built-in implementation and real renderers are injected by callers.
package annotate
