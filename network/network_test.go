package network

import (
	"errors"
	"slices"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	net := New()

	root := net.Root()
	if root == nil {
		t.Fatal("nil root")
	}

	if root.Label() != "" || root.Name() != "" || root.Parent() != nil {
		t.Errorf("root is not anonymous and detached: %q %q %v",
			root.Label(), root.Name(), root.Parent())
	}

	if root.Len() != 0 {
		t.Errorf("new root has %d children", root.Len())
	}

	if len(root.Path()) != 0 {
		t.Errorf("root path = %v", root.Path())
	}

	if len(net.Connections()) != 0 {
		t.Errorf("new network has connections")
	}
}

func TestOmap_Order(t *testing.T) {
	t.Parallel()

	m := newOmap[int]()

	m.set("b", 1)
	m.set("a", 2)
	m.set("c", 3)

	if !slices.Equal(m.keys, []string{"b", "a", "c"}) {
		t.Errorf("keys = %v", m.keys)
	}

	// Overwriting keeps the original position
	m.set("a", 9)

	if !slices.Equal(m.keys, []string{"b", "a", "c"}) {
		t.Errorf("keys after overwrite = %v", m.keys)
	}

	if v, ok := m.get("a"); !ok || v != 9 {
		t.Errorf("get(a) = %v, %v", v, ok)
	}

	m.del("b")

	if !slices.Equal(m.keys, []string{"a", "c"}) || m.len() != 2 {
		t.Errorf("keys after delete = %v", m.keys)
	}

	// Deleting an absent key is a no-op
	m.del("ghost")

	if m.len() != 2 {
		t.Errorf("len after ghost delete = %d", m.len())
	}
}

func TestEntity_Accessors(t *testing.T) {
	t.Parallel()

	net := New()

	pump := net.Instantiate("Pump")
	plant := net.NewGroup("Plant")

	if pump.ID() == "" || plant.ID() == "" || pump.ID() == plant.ID() {
		t.Errorf("entity ids not unique: %q %q", pump.ID(), plant.ID())
	}

	if pump.Kind() != KindNode || plant.Kind() != KindGroup {
		t.Errorf("kinds = %q, %q", pump.Kind(), plant.Kind())
	}

	if pump.Label() != "Pump" || plant.Label() != "Plant" {
		t.Errorf("labels = %q, %q", pump.Label(), plant.Label())
	}

	// Unattached entities have no name, parent, or path
	if pump.Name() != "" || pump.Parent() != nil || len(pump.Path()) != 0 {
		t.Errorf("unattached node has position: %q %v %v",
			pump.Name(), pump.Parent(), pump.Path())
	}

	if err := net.DeclareChild(nil, Path{"plant"}, plant); err != nil {
		t.Fatalf("declare plant: %v", err)
	}

	if err := net.DeclareChild(plant, Path{"pump"}, pump); err != nil {
		t.Fatalf("declare pump: %v", err)
	}

	if pump.Name() != "pump" || pump.Parent() != plant {
		t.Errorf("attached node position: %q %v", pump.Name(), pump.Parent())
	}

	if got := pump.Path().String(); got != "plant.pump" {
		t.Errorf("path = %q", got)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	net := New()

	pump := net.Instantiate("Pump")
	if err := net.DeclareChild(nil, Path{"plant", "bay", "pump"}, pump); err != nil {
		t.Fatalf("declare: %v", err)
	}

	t.Run("entity", func(t *testing.T) {
		t.Parallel()

		ent, err := net.Resolve(ParsePath("plant.bay.pump"))
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		if ent != Entity(pump) {
			t.Errorf("resolved %v", ent)
		}
	})

	t.Run("empty_path_is_root", func(t *testing.T) {
		t.Parallel()

		ent, err := net.Resolve(nil)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		if ent != Entity(net.Root()) {
			t.Errorf("resolved %v", ent)
		}
	})

	t.Run("relative_to_group", func(t *testing.T) {
		t.Parallel()

		bay, err := net.Resolve(ParsePath("plant.bay"))
		if err != nil {
			t.Fatalf("resolve bay: %v", err)
		}

		ent, err := bay.(*Group).Resolve(Path{"pump"})
		if err != nil {
			t.Fatalf("resolve pump: %v", err)
		}

		if ent != Entity(pump) {
			t.Errorf("resolved %v", ent)
		}
	})

	t.Run("missing_child", func(t *testing.T) {
		t.Parallel()

		_, err := net.Resolve(ParsePath("plant.ghost"))
		if !errors.Is(err, ErrReference) {
			t.Errorf("error = %v, want reference failure", err)
		}
	})

	t.Run("through_node", func(t *testing.T) {
		t.Parallel()

		_, err := net.Resolve(ParsePath("plant.bay.pump.deeper"))
		if !errors.Is(err, ErrReference) {
			t.Errorf("error = %v, want reference failure", err)
		}
	})
}

func TestResolvePort(t *testing.T) {
	t.Parallel()

	t.Run("creates_on_first_reference", func(t *testing.T) {
		t.Parallel()

		net := New()

		pump := net.Instantiate("Pump")
		if err := net.DeclareChild(nil, Path{"pump"}, pump); err != nil {
			t.Fatalf("declare: %v", err)
		}

		node, port, err := net.ResolvePort(PortRef{Path: Path{"pump"}, Port: "out"})
		if err != nil {
			t.Fatalf("resolve port: %v", err)
		}

		if node != pump || port.Name() != "out" {
			t.Errorf("resolved %v %q", node, port.Name())
		}

		// The same reference yields the same port
		_, again, err := net.ResolvePort(PortRef{Path: Path{"pump"}, Port: "out"})
		if err != nil {
			t.Fatalf("resolve port again: %v", err)
		}

		if again != port {
			t.Error("port recreated on second reference")
		}

		if !slices.Equal(pump.PortNames(), []string{"out"}) {
			t.Errorf("port names = %v", pump.PortNames())
		}
	})

	t.Run("through_boundary", func(t *testing.T) {
		t.Parallel()

		net := New()

		inner := net.Instantiate("Sink")
		if err := net.DeclareChild(nil, Path{"box", "sink"}, inner); err != nil {
			t.Fatalf("declare: %v", err)
		}

		bound := PortRef{Path: Path{"box", "sink"}, Port: "in"}
		if err := net.DeclareChild(nil, Path{"box", "input"}, bound); err != nil {
			t.Fatalf("declare bound: %v", err)
		}

		node, port, err := net.ResolvePort(PortRef{Path: Path{"box"}, Port: "input"})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		if node != inner || port.Name() != "in" {
			t.Errorf("resolved %v %q", node, port.Name())
		}
	})

	t.Run("missing_boundary", func(t *testing.T) {
		t.Parallel()

		net := New()

		box := net.NewGroup("Box")
		if err := net.DeclareChild(nil, Path{"box"}, box); err != nil {
			t.Fatalf("declare: %v", err)
		}

		_, _, err := net.ResolvePort(PortRef{Path: Path{"box"}, Port: "ghost"})
		if !errors.Is(err, ErrReference) {
			t.Errorf("error = %v, want reference failure", err)
		}
	})

	t.Run("forwarding_loop", func(t *testing.T) {
		t.Parallel()

		net := New()

		a := net.NewGroup("A")
		b := net.NewGroup("B")

		if err := net.DeclareChild(nil, Path{"a"}, a); err != nil {
			t.Fatalf("declare a: %v", err)
		}

		if err := net.DeclareChild(nil, Path{"b"}, b); err != nil {
			t.Fatalf("declare b: %v", err)
		}

		fwd := PortRef{Path: Path{"b"}, Port: "x"}
		if err := net.DeclareChild(nil, Path{"a", "x"}, fwd); err != nil {
			t.Fatalf("declare a.x: %v", err)
		}

		back := PortRef{Path: Path{"a"}, Port: "x"}
		if err := net.DeclareChild(nil, Path{"b", "x"}, back); err != nil {
			t.Fatalf("declare b.x: %v", err)
		}

		_, _, err := net.ResolvePort(PortRef{Path: Path{"a"}, Port: "x"})
		if !errors.Is(err, ErrReference) {
			t.Errorf("error = %v, want reference failure", err)
		}
	})
}

func TestPort_Connections(t *testing.T) {
	t.Parallel()

	net := New()

	src := net.Instantiate("Source")
	dst := net.Instantiate("Sink")

	if err := net.DeclareChild(nil, Path{"src"}, src); err != nil {
		t.Fatalf("declare src: %v", err)
	}

	if err := net.DeclareChild(nil, Path{"dst"}, dst); err != nil {
		t.Fatalf("declare dst: %v", err)
	}

	first, err := net.Connect(
		PortRef{Path: Path{"src"}, Port: "out"},
		PortRef{Path: Path{"dst"}, Port: "in"},
	)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	second, err := net.Connect(
		PortRef{Path: Path{"src"}, Port: "out"},
		PortRef{Path: Path{"dst"}, Port: "aux"},
	)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	out, ok := src.Port("out")
	if !ok {
		t.Fatal("out port missing")
	}

	conns := out.Connections()
	if len(conns) != 2 || conns[0] != first || conns[1] != second {
		t.Errorf("port connections = %v", conns)
	}

	if in, _ := dst.Port("in"); len(in.Connections()) != 1 {
		t.Errorf("in port connections = %v", in.Connections())
	}

	if first.ID() == "" || first.ID() == second.ID() {
		t.Errorf("connection ids not unique: %q %q", first.ID(), second.ID())
	}
}

func TestConnect_SelfLoop(t *testing.T) {
	t.Parallel()

	net := New()

	echo := net.Instantiate("Echo")
	if err := net.DeclareChild(nil, Path{"echo"}, echo); err != nil {
		t.Fatalf("declare: %v", err)
	}

	conn, err := net.Connect(
		PortRef{Path: Path{"echo"}, Port: "loop"},
		PortRef{Path: Path{"echo"}, Port: "loop"},
	)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	// A connection joining a port to itself is recorded on that port
	// once, not twice.
	port, _ := echo.Port("loop")
	if got := port.Connections(); len(got) != 1 || got[0] != conn {
		t.Errorf("loop port connections = %v", got)
	}

	if got := conn.Source().String(); got != "echo.loop" {
		t.Errorf("source = %q", got)
	}
}

func TestEndpoint_String(t *testing.T) {
	t.Parallel()

	net := New()

	pump := net.Instantiate("Pump")
	if err := net.DeclareChild(nil, Path{"plant", "pump"}, pump); err != nil {
		t.Fatalf("declare: %v", err)
	}

	ep := Endpoint{Node: pump, Port: "out"}
	if got := ep.String(); got != "plant.pump.out" {
		t.Errorf("String() = %q", got)
	}
}
