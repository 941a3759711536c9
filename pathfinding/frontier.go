package pathfinding

import (
	"container/heap"

	"pathviz/grid_world"
)

// frontier holds the unvisited, non-wall nodes of a search and yields them by ascending
// distance, ties going to the node inserted first.
type frontier interface {
	Len() int
	PopMin() *grid_world.Node
	// Update restores ordering after the node's distance decreased.
	Update(node *grid_world.Node)
}

type frontierItem struct {
	node         *grid_world.Node
	seq          int
	indexInQueue int
}

type priorityQueue []*frontierItem

func (queue priorityQueue) Len() int { return len(queue) }
func (queue priorityQueue) Less(i, j int) bool {
	if queue[i].node.Distance != queue[j].node.Distance {
		return queue[i].node.Distance < queue[j].node.Distance
	}
	return queue[i].seq < queue[j].seq
}
func (queue priorityQueue) Swap(i, j int) {
	queue[i], queue[j] = queue[j], queue[i]
	queue[i].indexInQueue = i
	queue[j].indexInQueue = j
}

func (queue *priorityQueue) Push(x any) {
	item := x.(*frontierItem)
	item.indexInQueue = len(*queue)
	*queue = append(*queue, item)
}

func (queue *priorityQueue) Pop() any {
	old := *queue
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.indexInQueue = -1
	*queue = old[:n-1]
	return item
}

// heapFrontier is a binary heap keyed by (distance, insertion sequence), with decrease-key
// through heap.Fix.
type heapFrontier struct {
	queue priorityQueue
	items map[*grid_world.Node]*frontierItem
}

func newHeapFrontier(nodes []*grid_world.Node) *heapFrontier {
	hf := &heapFrontier{
		queue: make(priorityQueue, 0, len(nodes)),
		items: make(map[*grid_world.Node]*frontierItem, len(nodes)),
	}
	for seq, node := range nodes {
		item := &frontierItem{node: node, seq: seq, indexInQueue: seq}
		hf.queue = append(hf.queue, item)
		hf.items[node] = item
	}
	heap.Init(&hf.queue)
	return hf
}

func (hf *heapFrontier) Len() int { return hf.queue.Len() }

func (hf *heapFrontier) PopMin() *grid_world.Node {
	item := heap.Pop(&hf.queue).(*frontierItem)
	delete(hf.items, item.node)
	return item.node
}

func (hf *heapFrontier) Update(node *grid_world.Node) {
	if item, ok := hf.items[node]; ok {
		heap.Fix(&hf.queue, item.indexInQueue)
	}
}

// scanFrontier keeps nodes in insertion order and scans for the first minimum on every pop.
// O(n) per pop; fine for the reference grid sizes.
type scanFrontier struct {
	nodes []*grid_world.Node
}

func newScanFrontier(nodes []*grid_world.Node) *scanFrontier {
	return &scanFrontier{nodes: append([]*grid_world.Node(nil), nodes...)}
}

func (sf *scanFrontier) Len() int { return len(sf.nodes) }

func (sf *scanFrontier) PopMin() *grid_world.Node {
	minIndex := 0
	for i, node := range sf.nodes {
		if node.Distance < sf.nodes[minIndex].Distance {
			minIndex = i
		}
	}
	closest := sf.nodes[minIndex]
	sf.nodes = append(sf.nodes[:minIndex], sf.nodes[minIndex+1:]...)
	return closest
}

func (sf *scanFrontier) Update(*grid_world.Node) {}
