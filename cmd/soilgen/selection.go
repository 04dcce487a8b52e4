package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soilgen/soilgen-fire/internal/adapter/keylist"
	"github.com/soilgen/soilgen-fire/internal/pipeline"
)

var errNoSelection = errors.New("no cokey or mukey given")

type selection struct {
	kind  pipeline.KeyKind
	input string // a key or a list file
	list  bool
}

func (s selection) keys() ([]string, error) {
	if !s.list {
		return []string{s.input}, nil
	}
	keys, err := keylist.Read(s.input)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("key list %s is empty", s.input)
	}
	return keys, nil
}

// flagSelection returns the selection made with flags, if any. The flags
// are mutually exclusive.
func flagSelection(o options) (selection, bool) {
	switch {
	case o.cokey != "":
		return selection{kind: pipeline.KindComponent, input: o.cokey}, true
	case o.colist != "":
		return selection{kind: pipeline.KindComponent, input: o.colist, list: true}, true
	case o.mukey != "":
		return selection{kind: pipeline.KindMapUnit, input: o.mukey}, true
	case o.mulist != "":
		return selection{kind: pipeline.KindMapUnit, input: o.mulist, list: true}, true
	}
	return selection{}, false
}

// promptSelection asks for a cokey or cokey list, then for a mukey or
// mukey list if the first answer is blank. An answer naming a .csv, .txt or
// .xlsx file is a list.
func promptSelection(in io.Reader, out io.Writer) (selection, error) {
	sc := bufio.NewScanner(in)
	ask := func(prompt string) (string, error) {
		if _, err := fmt.Fprint(out, prompt); err != nil {
			return "", err
		}
		if !sc.Scan() {
			return "", sc.Err()
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	co, err := ask("cokey or cokey list (.csv, .txt, .xlsx): ")
	if err != nil {
		return selection{}, err
	}
	if co != "" {
		return selection{kind: pipeline.KindComponent, input: co, list: keylist.IsList(co)}, nil
	}
	mu, err := ask("mukey or mukey list (.csv, .txt, .xlsx): ")
	if err != nil {
		return selection{}, err
	}
	if mu != "" {
		return selection{kind: pipeline.KindMapUnit, input: mu, list: keylist.IsList(mu)}, nil
	}
	return selection{}, errNoSelection
}
