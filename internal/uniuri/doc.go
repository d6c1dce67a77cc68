// Package uniuri generates random identifiers from crypto/rand: merchant order ids,
// upload file name suffixes and password reset tokens.
package uniuri
