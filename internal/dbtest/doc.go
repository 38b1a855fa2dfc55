/*
Package dbtest provides a convenient way to spin up database containers for
testing purposes. It wraps the testcontainers-go library with higher-level
setup functions for the backends the twin stores persist to: Neo4j for the
graph store and Redis for the key-value store.

If you find yourself wanting to use a database container in a test and the
details of the container are not important, you should use this package. If,
however, you need a specific customisation of the database, you should use
the testcontainers-go modules directly.

Developing locally with Docker, you may want to manually inspect the database
after a test failure. To do this, set the Inspect flag to true:

	go test -dbtest.inspect

This package is intended to be used in tests only. It is not suitable for
production use.
*/
package dbtest
