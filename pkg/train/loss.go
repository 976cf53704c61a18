package train

import (
	"fmt"

	"gorgonia.org/gorgonia"
)

// MSE builds mean((output - target)^2), the reconstruction loss.
func MSE(output, target *gorgonia.Node) (*gorgonia.Node, error) {
	diff, err := gorgonia.Sub(output, target)
	if err != nil {
		return nil, fmt.Errorf("failed to subtract target: %v", err)
	}

	sq, err := gorgonia.Square(diff)
	if err != nil {
		return nil, fmt.Errorf("failed to square difference: %v", err)
	}

	return gorgonia.Mean(sq)
}

// CategoricalCrossEntropy builds -mean(sum(target * log(output + eps), 1))
// for softmax outputs against one-hot targets. The epsilon keeps the log
// finite for saturated predictions.
func CategoricalCrossEntropy(output, target *gorgonia.Node) (*gorgonia.Node, error) {
	eps := 1e-7

	safe, err := gorgonia.Add(output, gorgonia.NewConstant(eps))
	if err != nil {
		return nil, fmt.Errorf("failed to add epsilon: %v", err)
	}

	logPred, err := gorgonia.Log(safe)
	if err != nil {
		return nil, fmt.Errorf("failed to compute log: %v", err)
	}

	losses, err := gorgonia.HadamardProd(target, logPred)
	if err != nil {
		return nil, fmt.Errorf("failed to compute hadamard product: %v", err)
	}

	sumLosses, err := gorgonia.Sum(losses, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to sum over classes: %v", err)
	}

	meanLoss, err := gorgonia.Mean(sumLosses)
	if err != nil {
		return nil, fmt.Errorf("failed to compute mean: %v", err)
	}

	return gorgonia.Neg(meanLoss)
}

// ArgmaxAccuracy scores a [batch, classes] prediction value by argmax match
// against integer labels.
func ArgmaxAccuracy(output gorgonia.Value, labels []int) (float64, error) {
	data, ok := output.Data().([]float64)
	if !ok {
		return 0, fmt.Errorf("%w: prediction is not a float64 matrix", ErrShapeMismatch)
	}
	rows := len(labels)
	if rows == 0 || len(data)%rows != 0 {
		return 0, fmt.Errorf("%w: %d prediction values for %d labels", ErrShapeMismatch, len(data), rows)
	}
	cols := len(data) / rows

	correct := 0
	for r := 0; r < rows; r++ {
		if argmax(data[r*cols:(r+1)*cols]) == labels[r] {
			correct++
		}
	}
	return float64(correct) / float64(rows), nil
}

func argmax(slice []float64) int {
	maxIndex := 0
	maxValue := slice[0]
	for i, value := range slice {
		if value > maxValue {
			maxValue = value
			maxIndex = i
		}
	}
	return maxIndex
}
