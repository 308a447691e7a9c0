package runtime_test

import (
	"context"
	"fmt"

	"github.com/bnb-chain/stepvm/core/vm/runtime"
	"github.com/ethereum/go-ethereum/common"
)

func ExampleExecute() {
	res, err := runtime.Execute(context.Background(), common.Hex2Bytes("6060604052600a8060106000396000f360606040526008565b00"), nil, nil)
	if err != nil {
		fmt.Println(err)
	}
	fmt.Println(res.Output)
	// Output:
	// [96 96 96 64 82 96 8 86 91 0]
}
