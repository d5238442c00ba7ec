// Command extraedemo-threads exercises multiple concurrently running
// goroutines attached as separate threads. extrae.Run wraps the
// Attach/Close boilerplate for a goroutine meant to show up as its
// own thread in the trace, and hands its handle to body.
package main

import (
	"fmt"
	"sync"
	"time"

	extrae "github.com/Ergus/Extrae-rs"
	"github.com/Ergus/Extrae-rs/guard"
)

var myFunctionSite guard.Site

func myFunction(ti *extrae.ThreadInfo, i int) int {
	defer myFunctionSite.Enter(ti, "myFunction", "main.go", 0, 1)()
	time.Sleep(10 * time.Millisecond)
	return i
}

func main() {
	fmt.Println("Start Program")
	ti := extrae.Attach()
	defer ti.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		extrae.Run(func(threadTI *extrae.ThreadInfo) {
			for i := 1; i < 10; i++ {
				fmt.Printf("hi number %d from the spawned thread!\n", myFunction(threadTI, i))
			}
		})
	}()

	for i := 1; i < 5; i++ {
		fmt.Printf("hi number %d from the main thread!\n", myFunction(ti, i))
	}

	wg.Wait()
	fmt.Println("Done")
}
