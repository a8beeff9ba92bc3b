// Package server hosts the dispatcher behind HTTP and the command line.
//
// Both hosts translate their input into a router.Ambient and a raw URI and
// call Dispatch; neither adds routing behaviour of its own.
package server
