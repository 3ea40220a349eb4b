//go:build js && wasm

package main

import "syscall/js"

func main() {
	m := &mirror{}

	js.Global().Set("matchupSetWinRates", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) < 1 {
			return "missing win rates"
		}
		if err := m.setWinRates(args[0].String()); err != nil {
			return err.Error()
		}
		return ""
	}))
	js.Global().Set("matchupPromote", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) < 3 {
			return encode(result{Error: "usage: matchupPromote(board, player, fighterId)"})
		}
		return m.promote(args[0].String(), args[1].String(), args[2].String())
	}))
	js.Global().Set("matchupLock", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) < 2 {
			return encode(result{Error: "usage: matchupLock(board, player)"})
		}
		return m.lock(args[0].String(), args[1].String())
	}))
	js.Global().Set("matchupUnlock", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) < 2 {
			return encode(result{Error: "usage: matchupUnlock(board, player)"})
		}
		return m.unlock(args[0].String(), args[1].String())
	}))
	js.Global().Set("matchupWinRate", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) < 2 {
			return encode(result{Error: "usage: matchupWinRate(a, b)"})
		}
		return m.winRate(args[0].String(), args[1].String())
	}))

	select {}
}
