package asm_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/duongddinh/apelang/asm"
	"github.com/duongddinh/apelang/value"
	"github.com/duongddinh/apelang/vm"
)

// Assemble a greeting by hand and run it on the VM.
func ExampleAssemble() {
	listing := `
	# build "Hello, Ape!" from two halves, then print it
	push "Hello, "
	push "Ape!"
	add
	print
`
	code, err := asm.Assemble("hello.apa", strings.NewReader(listing))
	if err != nil {
		fmt.Println(err)
		return
	}

	m, err := vm.New(vm.WithOutput(os.Stdout))
	if err != nil {
		fmt.Println(err)
		return
	}
	if _, err = m.Run(value.NewOwnerFunction(nil, 0, code)); err != nil {
		fmt.Println(err)
	}

	// Output:
	// Hello, Ape!
}

// Dump a compiled stream back to assembly.
func ExampleFprint() {
	code, err := asm.Assemble("count.apa", strings.NewReader(`
	push 2
	loop_start
:body
	push "ook"
	print
	jump_back body
`))
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := asm.Fprint(os.Stdout, code); err != nil {
		fmt.Println(err)
	}

	// Output:
	// 	push 2
	// 	loop_start
	// :l0
	// 	push "ook"
	// 	print
	// 	jump_back l0
	// 	halt
}
