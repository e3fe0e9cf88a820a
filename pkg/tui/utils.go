package tui

import (
	"math/big"
	"os/exec"
	"runtime"

	"gmboard/pkg/config"
	"gmboard/pkg/rpc"
	"gmboard/pkg/utils"
)

// postCostLabel renders the most a post can cost at gasPrice.
func postCostLabel(chain config.ChainConfig, gasPrice *big.Int) string {
	if gasPrice == nil {
		return ""
	}
	cost := rpc.MaxPostCost(config.PublishFee(), config.PublishGasLimit, gasPrice)
	return "Post cost ≤ " + utils.FormatBalance(utils.FormatEther(cost), 8) + " " + chain.CurrencySymbol
}

// openBrowser opens the specified URL in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}
