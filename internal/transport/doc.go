// Package transport issues verification requests to the classification
// service. It knows each channel's path and body encoding but does not
// interpret response bodies; that is the job of package normalize.
package transport
