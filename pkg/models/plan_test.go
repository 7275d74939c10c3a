package models

import "testing"

func TestTodoID(t *testing.T) {
	if got := TodoID("sess-9", 2); got != "todo_sess-9_2" {
		t.Errorf("TodoID() = %q", got)
	}
}

func TestTodosFromSteps(t *testing.T) {
	todos := TodosFromSteps("sess-1", []string{"first", "second"})

	if len(todos) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(todos))
	}
	for i, todo := range todos {
		if todo.Order != i {
			t.Errorf("todo %d: Order = %d", i, todo.Order)
		}
		if todo.Completed {
			t.Errorf("todo %d: created completed", i)
		}
		if todo.ID != TodoID("sess-1", i) {
			t.Errorf("todo %d: ID = %q", i, todo.ID)
		}
	}
	if todos[0].Text != "first" || todos[1].Text != "second" {
		t.Errorf("step text not carried through: %+v", todos)
	}
}

func TestTodosFromStepsEmpty(t *testing.T) {
	if todos := TodosFromSteps("sess-1", nil); len(todos) != 0 {
		t.Errorf("expected no todos, got %+v", todos)
	}
}
