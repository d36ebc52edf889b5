/*
Package ports defines the driven-side interfaces of the Canopy core.

The core never executes browser automation, renders a DOM, or persists
anything itself; it talks to collaborators through these interfaces. Hosts
plug in a Runner to actually drive a browser, a FlowStore to persist saved
flows, and a SelectionSource to feed the currently selected page element
into the graph editor.
*/
package ports
