// Command extraedemo-basic is a minimal single-thread demo: register
// an event name and id, emit manually and through the guard helper,
// then exit.
package main

import (
	"fmt"
	"time"

	extrae "github.com/Ergus/Extrae-rs"
	"github.com/Ergus/Extrae-rs/guard"
)

var myFunctionSite guard.Site

func myFunction(ti *extrae.ThreadInfo) {
	defer myFunctionSite.Enter(ti, "myFunction", "main.go", 0, 1)()
	time.Sleep(10 * time.Millisecond)
}

func main() {
	fmt.Println("Start Program")
	ti := extrae.Attach()
	defer ti.Close()

	requested := uint16(10)
	event1, err := extrae.RegisterEventName("Event1", "main.go", 0, &requested)
	if err != nil {
		fmt.Println("register Event1:", err)
	}
	ti.Emit(event1, 1)
	ti.Emit(event1, 0)

	myFunction(ti)
	myFunction(ti)
	myFunction(ti)

	fmt.Println("Done")
}
