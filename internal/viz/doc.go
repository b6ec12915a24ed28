// Package viz provides the terminal front end of the tuning sandbox.
//
// [App] is a Bubble Tea model that ticks a [sim.Driver] once per frame and
// draws every model's history against the setpoint with asciigraph. The y
// range eases between frames using a harmonica spring.
//
// # Key Bindings
//
//	Space      - Run/Pause real-time simulation
//	R          - Reset (only while running)
//	A / D / X  - Add, duplicate, remove model
//	Tab        - Select next model
//	Up/Down    - Select field
//	Left/Right - Adjust field (H/L for x10)
//	T          - Cycle color themes
//	Q          - Quit
package viz
