// Command memctl drives the page-backed allocator from the command line:
// replaying allocation traces, running concurrent stress workloads and
// printing memory maps.
package main

func main() {
	execute()
}
