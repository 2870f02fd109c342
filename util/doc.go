// Package util holds small generic helpers shared across flowkit packages.
package util
