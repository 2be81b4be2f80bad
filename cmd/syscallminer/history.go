package main

import (
	"fmt"
	"strings"

	"github.com/arpitbhardwaj7/syscallminer/pkg/store"
	"github.com/arpitbhardwaj7/syscallminer/pkg/ui"
)

func runHistory(args []string) error {
	fs, common := newFlagSet("history", "List saved runs, compare two of them, or delete one. \"latest\" names the newest run.")
	limit := fs.Int("limit", 20, "Number of runs to list (0 for all)")
	compare := fs.String("compare", "", "Compare two runs: idBefore,idAfter")
	del := fs.String("delete", "", "Delete the run with this id")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, log, err := setup(common)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := store.Open(cfg.Store.Path, log)
	if err != nil {
		return err
	}
	defer s.Close()
	r := ui.AutoRenderer()

	switch {
	case *del != "":
		if err := s.Delete(*del); err != nil {
			return err
		}
		fmt.Printf("Deleted run %s\n", *del)
	case *compare != "":
		ids := strings.Split(*compare, ",")
		if len(ids) != 2 {
			fs.Usage()
			return fmt.Errorf("%w: -compare wants idBefore,idAfter", errUsage)
		}
		before, err := getRun(s, strings.TrimSpace(ids[0]))
		if err != nil {
			return err
		}
		after, err := getRun(s, strings.TrimSpace(ids[1]))
		if err != nil {
			return err
		}
		fmt.Print(r.RenderComparison(store.Compare(before, after)))
	default:
		runs, err := s.List(*limit)
		if err != nil {
			return err
		}
		fmt.Print(r.RenderHistory(runs))
	}
	return nil
}

func getRun(s *store.Store, id string) (store.RunSummary, error) {
	if id == "latest" {
		return s.Latest()
	}
	return s.Get(id)
}
