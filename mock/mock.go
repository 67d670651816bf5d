// Package mock provides test doubles for chatstream interfaces using
// function fields.
package mock
