/*
Package dsl provides a fluent Go API for constructing flows in code.

It is an alternative to YAML flow files and to the change-set model: tests
and embedded hosts can declare a flow inline without wiring edges by hand.

	flow := dsl.New("login").
		Start().
		Navigate("open", "https://example.com/login").
		Type("user", "#username", "ada").
		Click("submit", "#submit").
		Assert("dashboard", ".welcome-banner").
		Build()

Steps chain linearly in declaration order; Branch adds explicit extra
edges for condition nodes.
*/
package dsl
