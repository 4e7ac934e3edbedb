/*
Package dsl provides a fluent builder for constructing fandom snapshots in Go.

It lets developers define tag catalogs, class rules, plot blocks, and
dependency edges with a type-safe API instead of external YAML or JSON files.
This is particularly useful for unit tests, dynamic catalog generation, and
leveraging IDE autocompletion.

Example usage:

	package main

	import (
		"github.com/canonry/canonry"
		"github.com/canonry/canonry/pkg/dsl"
	)

	func main() {
		b := dsl.New("wizarding-world")

		b.Tag("tag-hermione").Named("Hermione Granger").InClass("class-characters")
		b.Class("class-characters").MaxInstances(6)

		b.Block("block-yule-ball").
			Category("event").
			When(dsl.TagPresent("tag-hermione"))

		b.Block("block-aftermath")
		b.Requires("block-aftermath", "block-yule-ball")

		// The resulting provider can be handed straight to the engine.
		provider, _ := b.Build()
		eng, _ := canonry.New("wizarding-world", canonry.WithProvider(provider))
		_ = eng
	}
*/
package dsl
