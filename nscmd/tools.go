package nscmd

import (
	"context"
	"fmt"

	"go.ntppool.org/common/version"
)

type toolsCmd struct{}

func (cmd *toolsCmd) Run(ctx context.Context, cli *NSCmd) error {
	defer cli.close()

	store, err := cli.store(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cli.Timeout)
	defer cancel()

	ids, err := store.ToolIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

type versionCmd struct{}

func (cmd *versionCmd) Run(ctx context.Context) error {
	fmt.Printf("mlabns %s\n", version.Version())
	return nil
}
