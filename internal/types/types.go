// Package types contains protocol primitives shared by the header and sip packages.
package types
