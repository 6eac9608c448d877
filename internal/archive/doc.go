// Package archive downloads dataset archives and unpacks them.
//
// Fetcher performs a single HTTP GET with a fixed timeout using resty and
// streams the body to disk. Each request is traced as a client span.
//
// Extractor understands zip, tar and gzip-compressed tar archives, detected by
// file extension. It refuses members with absolute paths, members that climb
// out of the destination with "..", and anything that is not a regular file or
// directory.
package archive
