package state

// ChangeSet is the staged write set of one call. A nil price entry clears the
// listing.
type ChangeSet struct {
	Counter *AssetID
	Genomes map[AssetID]Genome
	Owners  map[AssetID]AccountID
	Prices  map[AssetID]*Balance
}

// Empty reports whether the change set writes nothing.
func (c ChangeSet) Empty() bool {
	return c.Counter == nil && len(c.Genomes) == 0 && len(c.Owners) == 0 && len(c.Prices) == 0
}

// Overlay stages writes on top of a read-only base view. Reads see staged
// writes first; the base is never touched.
type Overlay struct {
	base    View
	counter *AssetID
	genomes map[AssetID]Genome
	owners  map[AssetID]AccountID
	prices  map[AssetID]*Balance
}

// NewOverlay stages writes on top of base.
func NewOverlay(base View) *Overlay {
	return &Overlay{
		base:    base,
		genomes: map[AssetID]Genome{},
		owners:  map[AssetID]AccountID{},
		prices:  map[AssetID]*Balance{},
	}
}

// Counter returns the staged counter or the base counter.
func (o *Overlay) Counter() AssetID {
	if o.counter != nil {
		return *o.counter
	}
	return o.base.Counter()
}

// Genome returns the staged genome or the base genome.
func (o *Overlay) Genome(id AssetID) (Genome, bool) {
	if genome, ok := o.genomes[id]; ok {
		return genome, true
	}
	return o.base.Genome(id)
}

// Owner returns the staged owner or the base owner.
func (o *Overlay) Owner(id AssetID) (AccountID, bool) {
	if owner, ok := o.owners[id]; ok {
		return owner, true
	}
	return o.base.Owner(id)
}

// Price returns the staged price or the base price. A staged clear hides the
// base price.
func (o *Overlay) Price(id AssetID) (Balance, bool) {
	if price, ok := o.prices[id]; ok {
		if price == nil {
			return 0, false
		}
		return *price, true
	}
	return o.base.Price(id)
}

// SetCounter stages the next id to assign.
func (o *Overlay) SetCounter(next AssetID) {
	o.counter = &next
}

// PutGenome stages a genome write.
func (o *Overlay) PutGenome(id AssetID, genome Genome) {
	o.genomes[id] = genome
}

// PutOwner stages an owner write.
func (o *Overlay) PutOwner(id AssetID, owner AccountID) {
	o.owners[id] = owner
}

// SetPrice stages a listing write; nil clears the listing.
func (o *Overlay) SetPrice(id AssetID, price *Balance) {
	if price == nil {
		o.prices[id] = nil
		return
	}
	value := *price
	o.prices[id] = &value
}

// Changes returns a copy of the staged writes.
func (o *Overlay) Changes() ChangeSet {
	changes := ChangeSet{
		Genomes: make(map[AssetID]Genome, len(o.genomes)),
		Owners:  make(map[AssetID]AccountID, len(o.owners)),
		Prices:  make(map[AssetID]*Balance, len(o.prices)),
	}
	if o.counter != nil {
		next := *o.counter
		changes.Counter = &next
	}
	for id, genome := range o.genomes {
		changes.Genomes[id] = genome
	}
	for id, owner := range o.owners {
		changes.Owners[id] = owner
	}
	for id, price := range o.prices {
		if price == nil {
			changes.Prices[id] = nil
			continue
		}
		value := *price
		changes.Prices[id] = &value
	}
	return changes
}

var _ View = (*Overlay)(nil)
