//go:build !unix

package realmd

func userRunDir() string { return "" }
