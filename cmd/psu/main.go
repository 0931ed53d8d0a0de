// Command psu is a thin driver around the psu package: run as sender, run
// as receiver, or run a local two-party demo over a net.Pipe. Set loading
// from disk, result printing, and benchmarking harnesses stay out of scope
// (spec.md §1); this wires only the three operations needed to exercise
// the core, mirroring decenarch/decenarch.go's urfave/cli command layout.
package main

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.dedis.ch/onet/v3/log"

	"github.com/dedis/psu/block"
	"github.com/dedis/psu/config"
	"github.com/dedis/psu/netio"
	"github.com/dedis/psu/psu"
)

var (
	greenPrint = color.New(color.FgGreen).PrintfFunc()
	redPrint   = color.New(color.FgRed, color.Bold).PrintfFunc()
)

func main() {
	app := cli.NewApp()
	app.Name = "psu"
	app.Usage = "two-party private set union over a wcPRF and one-sided OT extension"
	app.Version = "0.1"
	app.Flags = []cli.Flag{
		&cli.IntFlag{Name: "debug", Aliases: []string{"d"}, Value: 0, Usage: "debug-level: 1 for terse, 5 for maximal"},
	}
	app.Before = func(c *cli.Context) error {
		log.SetDebugVisible(c.Int("debug"))
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:      "sender",
			Usage:     "run the sender role",
			ArgsUsage: "config-file",
			Action:    cmdSender,
		},
		{
			Name:      "receiver",
			Usage:     "run the receiver role",
			ArgsUsage: "config-file",
			Action:    cmdReceiver,
		},
		{
			Name:   "demo",
			Usage:  "run both roles locally over an in-process pipe, for a quick correctness check",
			Action: cmdDemo,
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "x", Value: 16, Usage: "size of the sender's set"},
				&cli.IntFlag{Name: "y", Value: 16, Usage: "size of the receiver's set"},
				&cli.StringFlag{Name: "filter", Value: "shuffle", Usage: "shuffle, bloom, or cuckoo"},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		redPrint("fatal: %v\n", err)
		os.Exit(1)
	}
}

func dial(address string, listen bool) (net.Conn, error) {
	if listen {
		ln, err := net.Listen("tcp", address)
		if err != nil {
			return nil, err
		}
		defer ln.Close()
		return ln.Accept()
	}
	return net.Dial("tcp", address)
}

func freshRandom() block.Block {
	b, err := block.Random(rand.Reader)
	if err != nil {
		panic(err)
	}
	return b
}

func cmdSender(c *cli.Context) error {
	cfg, err := config.Load(c.Args().First())
	if err != nil {
		return err
	}
	pp, err := psu.Setup(cfg.Filter, cfg.Lambda)
	if err != nil {
		return err
	}
	log.Info("psu: running as sender, listening on", cfg.Address)
	conn, err := dial(cfg.Address, true)
	if err != nil {
		return err
	}
	defer conn.Close()

	X := []block.Block{} // set loading from disk is out of scope; the sender runs with an empty set
	if err := psu.ParallelSender(netio.New(conn), pp, X, cfg.Workers, freshRandom); err != nil {
		return err
	}
	greenPrint("sender finished\n")
	return nil
}

func cmdReceiver(c *cli.Context) error {
	cfg, err := config.Load(c.Args().First())
	if err != nil {
		return err
	}
	pp, err := psu.Setup(cfg.Filter, cfg.Lambda)
	if err != nil {
		return err
	}
	log.Info("psu: running as receiver, dialing", cfg.Address)
	conn, err := dial(cfg.Address, false)
	if err != nil {
		return err
	}
	defer conn.Close()

	Y := []block.Block{}
	union, err := psu.ParallelReceiver(netio.New(conn), pp, Y, cfg.Workers, freshRandom)
	if err != nil {
		return err
	}
	greenPrint("receiver finished, |U|=%d\n", union.Len())
	return nil
}

func cmdDemo(c *cli.Context) error {
	filterType := config.FilterMode(c.String("filter"))
	pp, err := psu.Setup(filterType, 40)
	if err != nil {
		return err
	}

	sizeX, sizeY := c.Int("x"), c.Int("y")
	X := make([]block.Block, sizeX)
	Y := make([]block.Block, sizeY)
	for i := range X {
		X[i] = freshRandom()
	}
	for i := range Y {
		Y[i] = freshRandom()
	}

	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- psu.Sender(netio.New(c1), pp, X, 1, freshRandom)
	}()

	union, recvErr := psu.Receiver(netio.New(c2), pp, Y, 1, freshRandom)
	sendErr := <-errCh
	if sendErr != nil {
		return sendErr
	}
	if recvErr != nil {
		return recvErr
	}
	greenPrint("demo finished: |X|=%d |Y|=%d |U|=%d\n", sizeX, sizeY, union.Len())
	fmt.Println()
	return nil
}
