// Package internal ties parsing, evaluation and caching of dice programs
// together.
//
// Key components:
//
// Engine: reads a program file, parses it, evaluates it exactly and
// returns the law of the output variable as a Result.
//
// Cache: remembers the last Result per program and invalidates it when the
// source text changes.
//
// Watch: re-evaluates programs when their files are written.
//
// Usage:
//
//	engine := internal.NewEngine(internal.Config{Output: "result"}, logger)
//	result, err := engine.Run("attack.dice")
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(result.Distribution)
package internal
