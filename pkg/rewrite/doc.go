// Package rewrite clones a template module image under a new identity.
//
// Each consumer of the template gets its own image name and its own copy of
// one well-known type, so several consumers can ship the template side by
// side without their types colliding in the host.
package rewrite
