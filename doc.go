// Package main provides the entry point of dhenu-mahima, the api of Shree Gopal Parivar Sang.
// It serves news, events, bhajans, books, donations and memberships over a fiber
// REST api backed by gorm, and runs the scheduled membership payment jobs.
package main
