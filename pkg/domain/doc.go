/*
Package domain contains the core domain models for the Canopy flow engine.

It defines the fundamental entities of a browser test flow: the directed
graph of Nodes and Edges, the Flow aggregate saved and executed as a unit,
the ElementRef variants feeding selector generation, and the StepResult
sequence produced by a run. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Flow: A saved test definition (identifier, name, description, graph).
  - Node: A single test step (action, condition, assertion, input, wait).
  - Edge: A directed connection between two steps.
  - ElementRef: A reference to a page element used to derive a selector.
  - StepResult: One outcome entry of an executed flow.
*/
package domain
